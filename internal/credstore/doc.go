// Package credstore persists credentials for the maybe client.
//
// Two stores back a session:
//
//   - the secure store holds the serialized token pair under "auth_tokens".
//     It is the OS keychain (go-keyring) when available, falling back to
//     owner-only files under the storage directory.
//   - the profile store holds the user profile under "current_user" and the
//     device identifier under "device_id". It is always file based.
//
// SECURITY: token values are never logged. Writes and deletes on the secure
// store emit SECURITY_AUDIT log lines naming the entry key only.
//
// Vault is the typed layer used by the session manager. Read or decode
// failures are reported as "absent" so a corrupt entry never prevents the
// client from starting.
package credstore
