package lib

// Version is reported by the CLI and the gRPC health service name.
const Version = "0.3.0"
