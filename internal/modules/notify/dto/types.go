package dto

type SendInput struct {
	Token string
	Title string
	Body  string
}

type BroadcastInput struct {
	Title string
	Body  string
}

type Result struct {
	Status   int
	Title    string
	Body     string
	Response string
}
