// Package conv provides checked numeric conversions for row ids and
// persisted counters.
//
// Use them where a value crosses from int or a decoded JSON number into the
// uint32 id and frequency space. Conversions that are safe by construction
// use direct casts.
package conv
