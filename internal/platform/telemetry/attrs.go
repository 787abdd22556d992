package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String("method", method)
}

func routeAttr(route string) attribute.KeyValue {
	return attribute.String("route", route)
}

func statusAttr(status int) attribute.KeyValue {
	return attribute.String("status", strconv.Itoa(status))
}

func errorCodeAttr(code int) attribute.KeyValue {
	return attribute.String("error_code", strconv.Itoa(code))
}

func kindAttr(kind string) attribute.KeyValue {
	return attribute.String("kind", kind)
}

func resultAttr(result string) attribute.KeyValue {
	return attribute.String("result", result)
}

func subjectAttr(subject string) attribute.KeyValue {
	return attribute.String("subject", subject)
}
