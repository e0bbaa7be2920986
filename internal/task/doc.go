// Package task runs background work outside the request that produced it.
// Tasks are buffered in a Queue and executed by a WorkerPool, so slow side
// effects such as sending email do not delay HTTP responses.
package task
