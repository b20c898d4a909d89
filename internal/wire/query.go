package wire

// NewQuery builds an outbound query message: a single question, RD set
// per the caller's wish, QR=0, all counts computed by Encode.
func NewQuery(id uint16, name string, qtype QueryType, class uint16, recursionDesired bool) *Message {
	return &Message{
		Header: NewHeader(id, recursionDesired, false, RcodeNoError),
		Questions: []Question{
			{Name: name, Type: qtype, Class: class},
		},
	}
}

// NewResponse builds a response message echoing the original question,
// with QR=1 and RA=1 (recursion always available from this resolver).
func NewResponse(id uint16, question Question, rcode Rcode) *Message {
	h := NewHeader(id, false, true, rcode)
	h.RA = true
	return &Message{
		Header:    h,
		Questions: []Question{question},
	}
}

// NewEmptyResponse builds a response carrying no question, used for the
// FORMERR case where the incoming query itself had none to echo.
func NewEmptyResponse(id uint16, rcode Rcode) *Message {
	h := NewHeader(id, false, true, rcode)
	h.RA = true
	return &Message{Header: h}
}
