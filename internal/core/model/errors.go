package model

import "errors"

// ErrIo marks an unreadable file or directory. It is fatal to the whole
// load; wrap it with the offending path.
var ErrIo = errors.New("io error")

// ErrMalformedRecord marks a payload that failed to parse. It is absorbed at
// the record level (the record is treated as empty) and never aborts a load;
// the sentinel exists for logging and tests.
var ErrMalformedRecord = errors.New("malformed record")
