// internal/vault/vault.go
//
// Vault client wrapper for Weft.
//
// Context
// -------
//   - Thin façade over the HashiCorp Vault Go SDK, used only by the config
//     loader to turn `vault:<path>#<key>` references into plain strings.
//   - Weft reads its secrets once at boot, so there is no token-renewal
//     loop and no per-key cache here; restart to pick up rotated values.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).

package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

const refPrefix = "vault:"

// IsRef reports whether a config value is a Vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, refPrefix) }

// Client wraps the SDK client.  Zero value is invalid; use New.
type Client struct {
	api *vault.Client
}

// New constructs a client from the standard VAULT_* environment.
func New(_ context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return &Client{api: apiCli}, nil
}

// Resolve turns "vault:<mount>/<path>#<key>" into the stored string.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	if !IsRef(ref) {
		return ref, nil
	}
	rest := strings.TrimPrefix(ref, refPrefix)
	path, key, ok := strings.Cut(rest, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("malformed vault reference %q", ref)
	}
	return c.getKV(ctx, path, key)
}

// getKV fetches a single key from a KV-v2 secret.
func (c *Client) getKV(ctx context.Context, secretPath, key string) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}
	return sval, nil
}

// splitMount separates "<mount>/<relative path>".  A bare path gets the
// conventional "secret" mount.
func splitMount(p string) (mount, rel string) {
	mount, rel, ok := strings.Cut(p, "/")
	if !ok {
		return "secret", p
	}
	return mount, rel
}
