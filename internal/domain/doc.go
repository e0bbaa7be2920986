// Package domain contains the business entities of the tour-booking service:
// tours, users and reviews, their validation rules, and the value objects
// shared between the storage backends and the HTTP layer.
//
// Entities carry both bson and json tags. The bson names are the storage
// field names and match the query schemas declared here, so a query parsed
// against TourSchema can be rendered by any backend without translation.
package domain
