package account

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TempURL builds a time-limited signed URL granting access to an object
// without a token. The signature is an HMAC-SHA1 over method, absolute
// expiry and object path, keyed with the hash password; the expiry is
// computed against server time so clock skew cannot shorten or stretch
// the window. The object store must have the same key set as
// X-Account-Meta-Temp-URL-Key for the signature to verify.
func (a *Account) TempURL(ctx context.Context, method, container, object string, validFor time.Duration) (string, error) {
	key := a.HashPassword()
	if key == "" {
		return "", errors.Wrap(ErrNoHashPassword, "[Account.TempURL]")
	}

	acc, err := a.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(acc.PublicURL)
	if err != nil {
		return "", errors.Wrap(err, "[Account.TempURL] parse storage URL")
	}
	if override := a.publicHostOverride(); override != "" {
		base.Host = override
	}

	objectPath := fmt.Sprintf("%s/%s/%s", strings.TrimRight(base.Path, "/"), container, object)
	expires := a.clock.ServerTimeAfter(validFor).Unix()

	mac := hmac.New(sha1.New, []byte(key))
	fmt.Fprintf(mac, "%s\n%d\n%s", strings.ToUpper(method), expires, objectPath)
	signature := hex.EncodeToString(mac.Sum(nil))

	base.Path = objectPath
	base.RawQuery = url.Values{
		"temp_url_sig":     []string{signature},
		"temp_url_expires": []string{fmt.Sprintf("%d", expires)},
	}.Encode()

	return base.String(), nil
}

func (a *Account) publicHostOverride() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.publicHost
}
