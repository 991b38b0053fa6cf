package refiner

import (
	"encoding/json"
	"github.com/nats-io/nats.go"
	logger "log"
)

// RefinementResults carries one run's fit diagnostics and adherence summaries
type RefinementResults struct {
	RouteFits         []RouteFit       `json:"route_fits"`
	OriginalAdherence AdherenceSummary `json:"original_adherence"`
	RevisedAdherence  AdherenceSummary `json:"revised_adherence"`
}

//refinementResultsPublisher takes results of a refinement run and sends them over nats,
// logging any failure to do so
type refinementResultsPublisher struct {
	log             *logger.Logger
	natsConnection  *nats.Conn
	publishOverNats bool
}

//makeRefinementResultsPublisher creates refinementResultsPublisher
func makeRefinementResultsPublisher(log *logger.Logger,
	natsConnection *nats.Conn,
	publishOverNats bool) *refinementResultsPublisher {
	return &refinementResultsPublisher{
		log:             log,
		natsConnection:  natsConnection,
		publishOverNats: publishOverNats,
	}
}

//publish sends RefinementResults over NATS when publishing is enabled
func (p *refinementResultsPublisher) publish(results *RefinementResults) {
	if !p.publishOverNats || p.natsConnection == nil {
		return
	}
	jsonData, err := json.Marshal(results)
	if err != nil {
		p.log.Printf("failed to marshal RefinementResults in "+
			"refinementResultsPublisher.publish, error:%v", err)
		return
	}
	err = p.natsConnection.Publish("schedule-refinement-results", jsonData)
	if err != nil {
		p.log.Printf("failed to send RefinementResults in "+
			"refinementResultsPublisher.publish, error:%v", err)
	}
}
