package frame

// LRC computes the longitudinal redundancy check of payload.
func LRC(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return -sum
}
