package concierge_service_api

import (
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

const GatewayPattern = "/v1/conversations/{conversation_id}/messages"

type gatewayRequest struct {
	Text string `json:"text"`
}

// RegisterGateway routes the REST form of HandleUtterance to the gRPC server behind conn.
func RegisterGateway(mux *runtime.ServeMux, conn grpc.ClientConnInterface) error {
	return mux.HandlePath(http.MethodPost, GatewayPattern, func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		var req gatewayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		out, err := HandleUtterance(r.Context(), conn, pathParams["conversation_id"], req.Text)
		if err != nil {
			st := status.Convert(err)
			writeJSONError(w, runtime.HTTPStatusFromCode(st.Code()), st.Message())
			return
		}

		body, err := protojson.Marshal(out)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
