// Package catalog implements a catalog management backend: REST CRUD for
// products, categories, and users protected by an OAuth2 password grant that
// issues signed JWT access tokens.
//
// The package is organized around a small set of explicit collaborators wired
// at startup: a credential store backed by bun repositories, a password
// hasher, a token issuer, and a policy driven resource guard
// (middleware/guardware). Token validity is a pure function of the token
// bytes, the signing key, and the clock; authorization decisions read role
// authorities from the validated claims, never from the database.
package catalog
