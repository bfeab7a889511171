package kafka

// TopicPrefix namespaces every topic written by the storefront.
const TopicPrefix = "storefront"

// Topic returns the topic name for an aggregate and action,
// e.g. Topic("review", "submitted") is "storefront.review.submitted".
func Topic(aggregate, action string) string {
	return TopicPrefix + "." + aggregate + "." + action
}
