package transaction

// Source values recorded in transaction metadata.
const (
	SourceManual  = "manual"
	SourceGateway = "gateway"
)

const metadataSourceKey = "source"
