package cache

import "fmt"

// Kind identifies a cache partition.
type Kind string

// Cache partitions, one per entity collection.
const (
	KindTopics  Kind = "topics"  // the topics list
	KindTopic   Kind = "topic"   // a single topic by id
	KindSources Kind = "sources" // sources filtered by topic
	KindSource  Kind = "source"  // a single source by id
	KindEvents  Kind = "events"  // events filtered by topic
)

// Key addresses one cache entry. ParentID is the owning topic where
// the partition is topic-scoped; it is what cascade eviction matches
// on when a topic is deleted.
type Key struct {
	Kind     Kind
	ParentID int
	EntityID int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Kind, k.ParentID, k.EntityID)
}

// TopicsKey addresses the topics list.
func TopicsKey() Key { return Key{Kind: KindTopics} }

// TopicKey addresses a single topic.
func TopicKey(topicID int) Key { return Key{Kind: KindTopic, ParentID: topicID, EntityID: topicID} }

// SourcesKey addresses the source list of a topic.
func SourcesKey(topicID int) Key { return Key{Kind: KindSources, ParentID: topicID} }

// SourceKey addresses a single source, parented by its topic so topic
// deletion can evict it.
func SourceKey(topicID, sourceID int) Key {
	return Key{Kind: KindSource, ParentID: topicID, EntityID: sourceID}
}

// EventsKey addresses the event list of a topic.
func EventsKey(topicID int) Key { return Key{Kind: KindEvents, ParentID: topicID} }
