package account

// Mongo document mapping, exposed for tests.
var (
	ToMongoDocument   = toDocument
	FromMongoDocument = func(d mongoDocument) *Account { return d.account() }
)
