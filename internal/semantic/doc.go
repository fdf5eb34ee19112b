// Package semantic provides the tokenization primitives shared by the
// reposignal cross-corpus TF-IDF pass and the embedder's bag-of-words
// featuriser: splitting compound identifiers into constituent words and
// normalizing words to a common stem.
//
// NameSplitter breaks camelCase, PascalCase, snake_case, kebab-case, and
// SCREAMING_SNAKE_CASE identifiers into lowercase word lists, caching
// results since the same identifiers recur across a repo's files.
//
// Stemmer reduces words to a root form via the Porter2 algorithm so that
// different inflections of a term ("authenticate", "authentication") count
// as the same token in the embedder's bag-of-words vectors. The reposignal
// TF-IDF pass uses NameSplitter only and does not stem.
package semantic
