package cache

import "github.com/Convl/tomorrows-news/internal/domain"

// The helpers below are the standard patch vocabulary the mutation
// controllers, the poller and the push synchronizer share. They all go
// through Store.Patch, so every write is an idempotent merge by
// identity rather than an ad hoc replacement.

// UpsertTopic merges a topic into the topics list by identity and
// refreshes its by-id entry.
func UpsertTopic(s *Store, topic domain.Topic) {
	Patch(s, TopicsKey(), func(topics []domain.Topic, ok bool) []domain.Topic {
		if !ok {
			return []domain.Topic{topic}
		}
		for i := range topics {
			if topics[i].ID == topic.ID {
				out := make([]domain.Topic, len(topics))
				copy(out, topics)
				out[i] = topic
				return out
			}
		}
		return append(topics[:len(topics):len(topics)], topic)
	})
	Patch(s, TopicKey(topic.ID), func(domain.Topic, bool) domain.Topic {
		return topic
	})
}

// RemoveTopic drops a topic from the topics list and cascade-evicts
// everything the topic owned.
func RemoveTopic(s *Store, topicID int) {
	Patch(s, TopicsKey(), func(topics []domain.Topic, ok bool) []domain.Topic {
		if !ok {
			return nil
		}
		out := topics[:0:0]
		for _, t := range topics {
			if t.ID != topicID {
				out = append(out, t)
			}
		}
		return out
	})
	s.EvictTopic(topicID)
}

// UpsertSource merges a source into its topic's source list by
// identity and refreshes its by-id entry.
func UpsertSource(s *Store, src domain.ScrapingSource) {
	Patch(s, SourcesKey(src.TopicID), func(sources []domain.ScrapingSource, ok bool) []domain.ScrapingSource {
		if !ok {
			return []domain.ScrapingSource{src}
		}
		for i := range sources {
			if sources[i].ID == src.ID {
				out := make([]domain.ScrapingSource, len(sources))
				copy(out, sources)
				out[i] = src
				return out
			}
		}
		return append(sources[:len(sources):len(sources)], src)
	})
	Patch(s, SourceKey(src.TopicID, src.ID), func(domain.ScrapingSource, bool) domain.ScrapingSource {
		return src
	})
}

// RemoveSource drops a source from its topic's list and evicts its
// by-id entry.
func RemoveSource(s *Store, topicID, sourceID int) {
	Patch(s, SourcesKey(topicID), func(sources []domain.ScrapingSource, ok bool) []domain.ScrapingSource {
		if !ok {
			return nil
		}
		out := sources[:0:0]
		for _, src := range sources {
			if src.ID != sourceID {
				out = append(out, src)
			}
		}
		return out
	})
	s.Evict(SourceKey(topicID, sourceID))
}

// ApplySourcePatch merges a partial source update into the matching
// cached source, writing only the fields the patch carries. Sources
// not currently cached are left alone; the next poll picks them up.
func ApplySourcePatch(s *Store, topicID int, patch domain.SourcePatch) {
	if _, _, ok := s.Read(SourcesKey(topicID)); ok {
		Patch(s, SourcesKey(topicID), func(sources []domain.ScrapingSource, ok bool) []domain.ScrapingSource {
			if !ok {
				return sources
			}
			out := make([]domain.ScrapingSource, len(sources))
			copy(out, sources)
			for i := range out {
				if out[i].ID == patch.ID {
					out[i] = patch.Apply(out[i])
				}
			}
			return out
		})
	}
	if _, _, ok := s.Read(SourceKey(topicID, patch.ID)); ok {
		Patch(s, SourceKey(topicID, patch.ID), func(src domain.ScrapingSource, ok bool) domain.ScrapingSource {
			if !ok {
				return src
			}
			return patch.Apply(src)
		})
	}
}

// UpsertEvent merges an event into its topic's event list by
// identity, prepending when it is new.
func UpsertEvent(s *Store, event domain.Event) {
	Patch(s, EventsKey(event.TopicID), func(events []domain.Event, ok bool) []domain.Event {
		if !ok {
			return []domain.Event{event}
		}
		for i := range events {
			if events[i].ID == event.ID {
				out := make([]domain.Event, len(events))
				copy(out, events)
				out[i] = event
				return out
			}
		}
		return append([]domain.Event{event}, events...)
	})
}
