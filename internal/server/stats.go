package server

// Stats summarizes the server's query counters, printed periodically by
// the cmd/recursord entrypoint.
type Stats struct {
	Queries  uint64
	Answered uint64
	NXDomain uint64
	ServFail uint64
	FormErr  uint64
	NotImp   uint64
	Dropped  uint64
}

// GetStats returns current query counters.
func (s *Server) GetStats() Stats {
	return Stats{
		Queries:  s.queries.Load(),
		Answered: s.answered.Load(),
		NXDomain: s.nxdomain.Load(),
		ServFail: s.servfail.Load(),
		FormErr:  s.formerr.Load(),
		NotImp:   s.notimp.Load(),
		Dropped:  s.dropped.Load(),
	}
}
