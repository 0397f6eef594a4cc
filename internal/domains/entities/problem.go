package entities

import "fmt"

// Problem identifies a Codeforces problem by contest id and index ("A", "B1", ...).
type Problem struct {
	ContestId int      `dynamodbav:"ContestId" json:"contestId"`
	Index     string   `dynamodbav:"Index" json:"index"`
	Name      string   `dynamodbav:"Name" json:"name"`
	Rating    int      `dynamodbav:"Rating" json:"rating"`
	Tags      []string `dynamodbav:"Tags" json:"tags,omitempty"`
	Url       string   `dynamodbav:"Url" json:"url"`
}

// UniqueId is the catalog partition key, e.g. "1234_A".
func (p Problem) UniqueId() string {
	return fmt.Sprintf("%d_%s", p.ContestId, p.Index)
}

// Same reports whether two problems refer to the same external problem.
func (p Problem) Same(contestId int, index string) bool {
	return p.ContestId == contestId && p.Index == index
}
