package server

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	// Addr is the listen address for the preview server.
	Addr string
	// SyncDir is the published sync store directory to serve under /sync/.
	SyncDir string
	CertFile string
	KeyFile  string
}
