package query

import "github.com/andreisalomia/mini-jira/internal/types"

// Column is one status lane of a board.
type Column struct {
	Status types.Status   `json:"status"`
	Issues []*types.Issue `json:"issues"`
}

// Board groups issues into one column per status, in workflow order
// (OPEN, IN_PROGRESS, DONE). Each column keeps the input order.
func Board(issues []*types.Issue) []Column {
	columns := make([]Column, len(types.Statuses))
	index := make(map[types.Status]int, len(types.Statuses))
	for i, s := range types.Statuses {
		columns[i] = Column{Status: s, Issues: []*types.Issue{}}
		index[s] = i
	}
	for _, issue := range issues {
		if i, ok := index[issue.Status]; ok {
			columns[i].Issues = append(columns[i].Issues, issue)
		}
	}
	return columns
}
