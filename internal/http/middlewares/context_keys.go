package middlewares

// CtxRequestID is the gin context key for the request id; handlers.RespondError reads it too.
const CtxRequestID = "request_id"
