package version

const UnreleasedVersion = "dev"

// Version is the version of the build. It stays UnreleasedVersion unless
// the build sets it at link time with
// -ldflags "-X github.com/treeverse/viewstore/pkg/version.Version=...".
var Version = UnreleasedVersion
