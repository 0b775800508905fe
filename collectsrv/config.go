package collectsrv

// Config is the collect server configuration.
type Config struct {
	// Address to listen on (e.g., ":3000")
	ListenAddr string

	// DataPath is the training examples JSON file the server reads and
	// appends to.
	DataPath string
}
