package codeforces

// Problem as returned by problemset.problems and embedded in submissions.
type Problem struct {
	ContestId int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

// Submission is one entry from user.status, newest first.
type Submission struct {
	Id                  int64   `json:"id"`
	ContestId           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Verdict             string  `json:"verdict"`
	Problem             Problem `json:"problem"`
}

// UserInfo is one entry from user.info.
type UserInfo struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
}

type userStatusResponse struct {
	Status  string       `json:"status"`
	Comment string       `json:"comment"`
	Result  []Submission `json:"result"`
}

type userInfoResponse struct {
	Status  string     `json:"status"`
	Comment string     `json:"comment"`
	Result  []UserInfo `json:"result"`
}

type problemsetResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  struct {
		Problems []Problem `json:"problems"`
	} `json:"result"`
}
