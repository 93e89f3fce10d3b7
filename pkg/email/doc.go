// Package email sends transactional messages.
//
// Sender is the delivery contract. Two implementations are provided:
// PostmarkSender delivers through the Postmark API and DevSender writes each
// message to disk as .html, .txt and .json files for local inspection.
// NewSender picks one from Config.Driver.
//
// Message bodies are usually produced with the templates subpackage, which
// renders templ components to strings.
package email
