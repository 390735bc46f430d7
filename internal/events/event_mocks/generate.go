package event_mocks

//go:generate mockgen -source=../publisher.go -destination=event_mocks.go -package=event_mocks
