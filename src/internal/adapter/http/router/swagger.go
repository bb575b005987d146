package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Jade Core Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Jade Core Ledger API",
    "version": "1.0.0"
  },
  "paths": {
    "/owners": {
      "post": {
        "summary": "Register owner",
        "security": [{"BasicAuth": []}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["firstName", "lastName", "email", "phoneNumber"], "properties": {"firstName": {"type": "string"}, "middleName": {"type": "string"}, "lastName": {"type": "string"}, "email": {"type": "string"}, "phoneNumber": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "500": {"description": "Server error"}}
      }
    },
    "/owners/{id}": {
      "get": {
        "summary": "Get owner",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/kyc/documents": {
      "post": {
        "summary": "Submit KYC document",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["documentType", "documentNumber"], "properties": {"documentType": {"type": "string"}, "documentNumber": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      },
      "get": {
        "summary": "List KYC documents",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "ownerId", "in": "query", "required": false, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/kyc/documents/{id}/review": {
      "put": {
        "summary": "Review KYC document",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["approve"], "properties": {"approve": {"type": "boolean"}, "rejectionReason": {"type": "string"}}}}}},
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/accounts": {
      "post": {
        "summary": "Open account",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["accountType"], "properties": {"accountType": {"type": "string"}, "initialDeposit": {"type": "string"}, "interestRate": {"type": "string"}, "maturityDate": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      },
      "get": {
        "summary": "List accounts",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "ownerId", "in": "query", "required": false, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/accounts/{id}": {
      "get": {
        "summary": "Get account",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/accounts/{id}/statement": {
      "get": {
        "summary": "Account statement",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "from", "in": "query", "required": true, "schema": {"type": "string"}}, {"name": "to", "in": "query", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/transactions": {
      "get": {
        "summary": "Search transaction history",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "ownerId", "in": "query", "required": false, "schema": {"type": "string", "format": "uuid"}}, {"name": "accountId", "in": "query", "required": false, "schema": {"type": "string", "format": "uuid"}}, {"name": "type", "in": "query", "required": false, "schema": {"type": "string", "enum": ["transfer", "deposit", "withdrawal", "loan_disbursement", "loan_payment"]}}, {"name": "from", "in": "query", "required": false, "schema": {"type": "string"}}, {"name": "to", "in": "query", "required": false, "schema": {"type": "string"}}, {"name": "minAmount", "in": "query", "required": false, "schema": {"type": "string"}}, {"name": "maxAmount", "in": "query", "required": false, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/transactions/transfer": {
      "post": {
        "summary": "Transfer between accounts",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["fromAccountId", "toAccountId", "amount"], "properties": {"fromAccountId": {"type": "string"}, "toAccountId": {"type": "string"}, "amount": {"type": "string"}, "description": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/transactions/deposit": {
      "post": {
        "summary": "Deposit",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["accountId", "amount"], "properties": {"accountId": {"type": "string"}, "amount": {"type": "string"}, "description": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/transactions/withdraw": {
      "post": {
        "summary": "Withdraw",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["accountId", "amount"], "properties": {"accountId": {"type": "string"}, "amount": {"type": "string"}, "description": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/transactions/{id}": {
      "get": {
        "summary": "Get transaction",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/calculate-emi": {
      "post": {
        "summary": "Quote EMI",
        "security": [{"BasicAuth": []}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["loanType", "principal", "tenureMonths"], "properties": {"loanType": {"type": "string"}, "principal": {"type": "string"}, "interestRate": {"type": "string"}, "tenureMonths": {"type": "integer"}}}}}},
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "500": {"description": "Server error"}}
      }
    },
    "/loans": {
      "post": {
        "summary": "Apply for loan",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["loanType", "principal", "tenureMonths"], "properties": {"loanType": {"type": "string"}, "principal": {"type": "string"}, "interestRate": {"type": "string"}, "tenureMonths": {"type": "integer"}, "purpose": {"type": "string"}, "disbursementAccountId": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      },
      "get": {
        "summary": "List loans",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "ownerId", "in": "query", "required": false, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/{id}": {
      "get": {
        "summary": "Get loan",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/{id}/approve": {
      "put": {
        "summary": "Approve loan",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/{id}/reject": {
      "put": {
        "summary": "Reject loan",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["reason"], "properties": {"reason": {"type": "string"}}}}}},
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/{id}/pay-emi": {
      "post": {
        "summary": "Pay EMI",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "required": ["paymentAccountId", "emiNumber", "amount"], "properties": {"paymentAccountId": {"type": "string"}, "emiNumber": {"type": "integer"}, "amount": {"type": "string"}}}}}},
        "responses": {"201": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "409": {"description": "Concurrent update"}, "422": {"description": "Business rule violation"}, "500": {"description": "Server error"}}
      }
    },
    "/loans/{id}/emi-schedule": {
      "get": {
        "summary": "EMI schedule",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "X-Owner-Id", "in": "header", "required": true, "schema": {"type": "string", "format": "uuid"}}, {"name": "X-Role", "in": "header", "required": false, "schema": {"type": "string", "enum": ["customer", "admin", "auditor"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
        "responses": {"200": {"description": "Success"}, "400": {"description": "Validation error"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}, "500": {"description": "Server error"}}
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {"type": "http", "scheme": "basic"}
    }
  }
}`
