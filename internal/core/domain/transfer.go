package domain

// FilePayload is a relayed file. Data carries the encoded payload (a
// base64 data URL in the reference client); the server forwards it
// verbatim and never retains it.
type FilePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data string `json:"data"`
}

// FileChunk is one piece of a chunked transfer. Chunks share a
// TransferID and are reassembled by the receiving client; the server
// relays them individually with the same membership checks as whole
// files. Seq is zero-based, Total is the chunk count.
type FileChunk struct {
	TransferID string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	Seq        int    `json:"seq"`
	Total      int    `json:"total"`
	Data       string `json:"data"`
}
