// Package registeruser implements the Register User use case.
// Usernames and email addresses are unique, emails compared case-insensitively.
package registeruser
