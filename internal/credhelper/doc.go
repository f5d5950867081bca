// file: internal/credhelper/doc.go

// Package credhelper obtains an Obot API token for a host application.
// A stored credential is refreshed when possible; otherwise the user picks
// an auth provider, authorizes in a browser, and the helper polls until the
// server issues the token.
package credhelper
