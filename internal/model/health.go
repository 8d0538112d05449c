package model

// PoolStats describes connection pool occupancy at a point in time.
type PoolStats struct {
	TotalCount int `json:"totalCount"`
	IdleCount  int `json:"idleCount"`
}

// HealthStatus is a point-in-time snapshot of database health: whether the
// connection is alive, the ping round-trip in milliseconds, and pool
// occupancy. It is produced fresh on every query and never cached.
type HealthStatus struct {
	Connected bool      `json:"connected"`
	Latency   float64   `json:"latency"`
	PoolStats PoolStats `json:"poolStats"`
}
