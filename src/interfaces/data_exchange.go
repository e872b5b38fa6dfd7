package interfaces

import "market-loader/src/models"

// -----------------------------------------------------------------------------
// IEventPublisher receives run and stage transitions as they happen.
// -----------------------------------------------------------------------------

type IEventPublisher interface {
	// Publish must not block the pipeline run.
	Publish(event models.MStageEvent)
}

// -----------------------------------------------------------------------------
// IDataExchanger is a control surface that also streams run events (HTTP/WebSocket).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	IEventPublisher

	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
