package docid

import "sort"

// Query is a logical GraphQL query name
type Query string

const (
	UserByUsername Query = "user-by-username"
	UserThreads    Query = "user-threads"
	UserReplies    Query = "user-replies"
	UserReposts    Query = "user-reposts"
	ThreadDetail   Query = "thread-detail"
	HomeTimeline   Query = "home-timeline"
	Search         Query = "search"
	Followers      Query = "followers"
	Following      Query = "following"
	PostLikers     Query = "post-likers"
	PostReposters  Query = "post-reposters"
)

// Queries lists every logical query in a stable order
var Queries = []Query{
	UserByUsername,
	UserThreads,
	UserReplies,
	UserReposts,
	ThreadDetail,
	HomeTimeline,
	Search,
	Followers,
	Following,
	PostLikers,
	PostReposters,
}

// Fallbacks are used wherever discovery finds nothing. They go stale as the
// web client is redeployed, which is why discovery exists at all.
var Fallbacks = map[Query]string{
	UserByUsername: "23996318473300828",
	UserThreads:    "6232751443445612",
	UserReplies:    "6684830921547925",
	UserReposts:    "7316357935139651",
	ThreadDetail:   "7448594591874178",
	HomeTimeline:   "9121496641281493",
	Search:         "7431297046935432",
	Followers:      "9331239690243451",
	Following:      "9277981262248127",
	PostLikers:     "9360915773983802",
	PostReposters:  "6991580004296853",
}

// operationNames are the GraphQL operation names that sit next to each id in the web bundles
var operationNames = map[Query]string{
	UserByUsername: "BarcelonaProfileRootQuery",
	UserThreads:    "BarcelonaProfileThreadsTabQuery",
	UserReplies:    "BarcelonaProfileRepliesTabQuery",
	UserReposts:    "BarcelonaProfileRepostsTabQuery",
	ThreadDetail:   "BarcelonaPostPageQuery",
	HomeTimeline:   "BarcelonaFeedQuery",
	Search:         "BarcelonaSearchResultsQuery",
	Followers:      "BarcelonaFriendshipsFollowersTabQuery",
	Following:      "BarcelonaFriendshipsFollowingTabQuery",
	PostLikers:     "BarcelonaPostLikersDialogQuery",
	PostReposters:  "BarcelonaPostRepostersDialogQuery",
}

// OperationName returns the GraphQL operation name sent alongside a query
func OperationName(q Query) string {
	return operationNames[q]
}

// Set resolves every Query to a doc id. Values built by this package always
// carry all keys.
type Set struct {
	IDs          map[Query]string
	SessionToken string
}

// FallbackSet returns a Set holding only the hardcoded ids
func FallbackSet() Set {
	return Merge(nil, "")
}

// Merge lays ids over the fallback table. Unknown keys and empty values are ignored.
func Merge(ids map[Query]string, sessionToken string) Set {
	s := Set{IDs: make(map[Query]string, len(Fallbacks)), SessionToken: sessionToken}
	for q, id := range Fallbacks {
		s.IDs[q] = id
	}
	for q, id := range ids {
		if _, known := Fallbacks[q]; known && id != "" {
			s.IDs[q] = id
		}
	}
	return s
}

// ID returns the doc id for q, falling back to the hardcoded table
func (s Set) ID(q Query) string {
	if id := s.IDs[q]; id != "" {
		return id
	}
	return Fallbacks[q]
}

// Overrides lists the queries whose id differs from the fallback table
func (s Set) Overrides() []Query {
	var out []Query
	for q, id := range s.IDs {
		if fb, ok := Fallbacks[q]; ok && id != fb {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
