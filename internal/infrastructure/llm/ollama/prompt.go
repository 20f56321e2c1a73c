package ollama

import "strings"

const routerSystemPrompt = `You are an expert at routing a user question to perform vector search or graph query.
The vector store contains documents related to authors, article titles and topics.
If the user question is about similarity search, perform vector search. The user query may include terms like similar, related, relevant, identical, closest etc. to suggest vector search.
For all else, use graph query.

Examples:
Find articles about photosynthesis -> vector_search
Find similar articles that is about oxidative stress -> vector_search
Which author has written the most publications? -> graph_query
List the titles of publications published in 2020 -> graph_query

Return JSON with a single key "datasource" set to "vector_search" or "graph_query".`

const decomposerSystemPrompt = `You are an expert at converting user questions into Neo4j Cypher queries.
Perform query decomposition. Given a user question, break it down into two distinct subqueries:
one query for similarity search (purpose "similarity") and one query to perform a neo4j graph query (purpose "structured").
The similarity subquery describes what the articles are about. The structured subquery describes what to return about them.

Example:
Question: Find the articles about the photosynthesis and return their titles.
Answer: {"sub_queries": [
  {"purpose": "similarity", "sub_query": "Find articles related to photosynthesis."},
  {"purpose": "structured", "sub_query": "Return titles of the articles"}
]}`

func buildRouterPrompt(question string) string {
	return "Question: " + strings.TrimSpace(question)
}

func buildDecomposerPrompt(question string) string {
	return "Question: " + strings.TrimSpace(question) + "\nAnswer:"
}
