package serializers

import (
	"encoding/json"
	"strings"

	"github.com/sciforge/depository/pkg/common/models"
)

type Serializer func(*models.RecordMetadata) ([]byte, error)

const (
	MimeJSON       = "application/json"
	MimeDataCite   = "application/x-datacite+xml"
	MimeDublinCore = "application/x-dc+xml"
	MimeMARC21     = "application/marcxml+xml"
)

// ForAccept picks a serializer and its response content type from the Accept
// header. JSON is the native default.
func ForAccept(accept string) (Serializer, string) {
	for _, part := range strings.Split(accept, ",") {
		mime := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mime {
		case MimeDataCite:
			return DataCiteXML, MimeDataCite
		case MimeDublinCore:
			return DublinCoreXML, MimeDublinCore
		case MimeMARC21:
			return MARC21XML, MimeMARC21
		case MimeJSON, "*/*", "":
			return jsonSerializer, MimeJSON
		}
	}
	return jsonSerializer, MimeJSON
}

func jsonSerializer(meta *models.RecordMetadata) ([]byte, error) {
	return json.MarshalIndent(meta, "", "  ")
}
