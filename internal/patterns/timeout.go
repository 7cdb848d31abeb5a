package patterns

import "time"

// DefaultTimeout is the default timeout for HTTP requests
const DefaultTimeout = 3 * time.Second

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 10 * time.Second

// BulkheadWait is how long a caller waits for a free bulkhead slot
const BulkheadWait = 1 * time.Second
