// Package command defines the gcportal-cli commands using urfave/cli/v2.
//
// Each command drives the session client the same way the portal's web
// views do: register, login, account, realm list and so on. The shell
// command runs the same commands interactively against one shared
// session.
package command
