package models

// ConsistencyStatus is derived, never stored: the answer to "do all backends
// hold the same bytes for this object key?". Mismatches lists every backend
// that is missing, failed, unreachable, or whose fingerprint differs from the
// source fingerprint of the latest replication record.
type ConsistencyStatus struct {
	ObjectKey  string   `json:"object_key"`
	Consistent bool     `json:"consistent"`
	Mismatches []string `json:"mismatches"`
}

// ObjectInfo describes a stored object as seen by one backend, including the
// at-rest encryption the backend itself applies (independent of the
// application-level envelope).
type ObjectInfo struct {
	Exists           bool   `json:"exists"`
	Size             int64  `json:"size"`
	RemoteEncryption string `json:"remote_encryption,omitempty"`
}
