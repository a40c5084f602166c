// Package git provides git repository operations and a strategy interface for
// preparing model repositories across different hub platforms.
//
// The HubProvider interface abstracts repository lookup and creation.
// Implementations exist for the Hugging Face Hub, GitHub, and GitLab in
// sub-packages. HubProviderFunc is a convenience adapter that lets plain
// functions satisfy the interface.
//
// Repo wraps a local git clone with methods for committing and pushing.
// Clone creates a new Repo from a remote URL; AuthenticatedURL embeds an
// access token into an HTTPS remote so the push can authenticate.
package git
