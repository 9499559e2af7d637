package nrf905

import "errors"

// ErrConfigWrite indicates a register read-back mismatch after
// WriteConfig. The caller should retry; the driver itself does not
// retry automatically.
var ErrConfigWrite = errors.New("nrf905: config write verification failed")
