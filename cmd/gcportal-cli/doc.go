// Package main provides the entry point for gcportal-cli.
//
// gcportal-cli is a command-line client for a game server's account
// portal API:
//
//   - Account registration and login with CAPTCHA
//   - Two-factor authentication and authenticator enrollment
//   - Account and game account management
//   - Realm status and connection guides
//
// Usage:
//
//	gcportal-cli [global flags] command [flags] [arguments]
//	gcportal-cli -s https://portal.example.org login -u alice
//	gcportal-cli realm watch --interval 5s
//	gcportal-cli shell
//
// The credential is kept in ~/.gcportal/store between invocations.
package main
