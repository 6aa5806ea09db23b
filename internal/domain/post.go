package domain

// MediaType classifies a single media attachment.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaGif   MediaType = "gif"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Media is one attachment of a resolved post. It carries either an
// ExternalURL the caller can redirect to, or a Filename of a locally
// produced file together with the FileCallback releasing it.
type Media struct {
	Type         MediaType         `json:"type"`
	ExternalURL  string            `json:"externalUrl,omitempty"`
	Original     string            `json:"original,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	Filetype     string            `json:"filetype,omitempty"`
	Filesize     int64             `json:"filesize,omitempty"`
	Description  string            `json:"description,omitempty"`
	OtherSources map[string]string `json:"otherSources,omitempty"`

	// FileCallback exclusively owns deletion of the backing temp file.
	// It is safe to call more than once; only the first call has effect.
	FileCallback func() `json:"-"`
}

// Local reports whether the media is backed by a local temp file.
func (m *Media) Local() bool {
	return m.Filename != "" && m.FileCallback != nil
}

// SocialPost is the normalized result of resolving one post URL.
// It is produced fresh per request and never persisted.
type SocialPost struct {
	Caption   string  `json:"caption"`
	Author    string  `json:"author"`
	AuthorURL string  `json:"authorURL"`
	PostURL   string  `json:"postURL"`
	Medias    []Media `json:"medias"`
}
