package dialoguetree

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/dialoguetree.Version=...".
var Version = "0.1.0"
