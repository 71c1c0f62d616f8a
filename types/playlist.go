package types

// PlaylistEntry is one playlist item as returned by the paginator.
type PlaylistEntry struct {
	VideoID string
	Title   string
	Author  string
	Index   int
}

// PlaylistPage is a single page of playlist entries. NextToken is empty on the
// final page; otherwise it must be forwarded verbatim on the next request.
type PlaylistPage struct {
	Items     []PlaylistEntry
	NextToken string
}

// CommentThread is one top-level comment.
type CommentThread struct {
	ID            string
	Author        string
	Text          string
	LikeCount     int
	PublishedTime string
	ReplyCount    int
}

// CommentsPage is a single page of comment threads.
type CommentsPage struct {
	Items     []CommentThread
	NextToken string
}

// CommentSort selects the upstream comment ordering.
type CommentSort int

const (
	// SortTop requests the platform's relevance ordering.
	SortTop CommentSort = iota
	// SortNewest requests reverse-chronological ordering.
	SortNewest
)
