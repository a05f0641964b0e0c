package order

// deriveStatus maps quantities to a status.
// Fill takes precedence over cancel; the order of checks matters.
func deriveStatus(cumQty, cxlQty, orderQty int64) Status {
	switch {
	case cumQty == orderQty:
		return StatusFilled
	case cumQty+cxlQty == orderQty:
		return StatusCanceled
	case cumQty > 0 && cumQty < orderQty:
		return StatusPartiallyFilled
	default:
		return StatusNew
	}
}

func (o *Order) adjustStatus() {
	o.Status = deriveStatus(o.CumQty, o.CxlQty, o.OrderQty)
}
