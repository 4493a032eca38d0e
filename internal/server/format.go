package server

// FormatConnectedAt renders a connection's start time for INFO CONNECTIONS,
// matching the server banner's "YYYY/MM/DD HH:MM:SS" style.
func FormatConnectedAt(c ConnectionInfo) string {
	return c.ConnectedAt.UTC().Format("2006/01/02 15:04:05")
}
