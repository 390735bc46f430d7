package dto

// StatsQuery binds the date window shared by the aggregation endpoints.
type StatsQuery struct {
	StartDate string `query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Type      string `query:"type" validate:"omitempty,entry_type"`
}

func (q *StatsQuery) TransactionQuery() *TransactionQuery {
	return &TransactionQuery{StartDate: q.StartDate, EndDate: q.EndDate, Type: q.Type}
}

// DemoDataQuery binds POST /api/dev/demo-data
type DemoDataQuery struct {
	Count int `query:"count" validate:"omitempty,min=1,max=1000"`
	Days  int `query:"days" validate:"omitempty,min=1,max=730"`
}

type DemoDataResponse struct {
	Created int `json:"created"`
	Days    int `json:"days"`
}
