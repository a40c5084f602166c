// Package github implements a git.HubProvider that looks up and creates
// model repositories on GitHub (cloud or enterprise). Configure with a
// Config containing the repository owner, name, and personal access token.
// Set EnterpriseHost for GitHub Enterprise installations.
package github
