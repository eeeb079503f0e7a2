// Package master implements the master side of the protocol: one
// outstanding request at a time, a response deadline per attempt and a
// bounded number of retransmissions. Broadcast requests are sent once and
// never wait for a reply.
package master
