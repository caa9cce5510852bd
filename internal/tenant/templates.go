package tenant

import (
	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/platform"
)

// Template tokens are patched with real identifiers at creation time.
// They are plain string markers, replaced with the same redirect machinery
// used for cloning.
const (
	tokenWorkspaceID         = "{WORKSPACE_ID}"
	tokenLakehouseID         = "{LAKEHOUSE_ID}"
	tokenLakehouseName       = "{LAKEHOUSE_NAME}"
	tokenWarehouseID         = "{WAREHOUSE_ID}"
	tokenWarehouseConnect    = "{WAREHOUSE_CONNECT_STRING}"
	tokenConnectionID        = "{CONNECTION_ID}"
	tokenSQLEndpointServer   = "{SQL_ENDPOINT_SERVER}"
	tokenSQLEndpointDatabase = "{SQL_ENDPOINT_DATABASE}"
	tokenSemanticModelID     = "{SEMANTIC_MODEL_ID}"
	tokenScriptText          = "{SCRIPT_TEXT}"
)

const modelDescriptorTemplate = `{
  "version": "1.0",
  "settings": {}
}`

// directLakeModelTemplate is a TMSL semantic model bound to a SQL endpoint
// over DirectLake. The expression source is patched per tenant.
const directLakeModelTemplate = `{
  "name": "Product Sales",
  "compatibilityLevel": 1604,
  "model": {
    "defaultMode": "directLake",
    "expressions": [
      {
        "name": "DatabaseQuery",
        "kind": "m",
        "expression": "let\n  database = Sql.Database(\"{SQL_ENDPOINT_SERVER}\", \"{SQL_ENDPOINT_DATABASE}\")\nin\n  database"
      }
    ],
    "tables": [
      { "name": "products", "mode": "directLake", "source": { "entityName": "products", "expressionSource": "DatabaseQuery" } },
      { "name": "customers", "mode": "directLake", "source": { "entityName": "customers", "expressionSource": "DatabaseQuery" } },
      { "name": "sales", "mode": "directLake", "source": { "entityName": "sales", "expressionSource": "DatabaseQuery" } }
    ]
  }
}`

const reportDescriptorTemplate = `{
  "version": "1.0",
  "datasetReference": {
    "byConnection": {
      "connectionString": null,
      "pbiServiceModelId": null,
      "pbiModelVirtualServerName": "sobe_wowvirtualserver",
      "pbiModelDatabaseName": "{SEMANTIC_MODEL_ID}",
      "name": "EntityDataSource",
      "connectionType": "pbiServiceXmlaStyleLive"
    }
  }
}`

const reportContentTemplate = `{
  "config": "{\"version\":\"5.37\",\"themeCollection\":{\"baseTheme\":{\"name\":\"CY24SU02\"}}}",
  "layoutOptimization": 0,
  "sections": [
    { "name": "overview", "displayName": "Sales Overview", "visualContainers": [] }
  ]
}`

const reportThemeTemplate = `{
  "name": "CY24SU02",
  "dataColors": ["#118DFF", "#12239E", "#E66C37", "#6B007B"]
}`

// notebookTemplate creates the lakehouse delta tables. The default
// lakehouse binding is patched per tenant.
const notebookTemplate = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {
    "language_info": { "name": "python" },
    "dependencies": {
      "lakehouse": {
        "default_lakehouse": "{LAKEHOUSE_ID}",
        "default_lakehouse_name": "{LAKEHOUSE_NAME}",
        "default_lakehouse_workspace_id": "{WORKSPACE_ID}"
      }
    }
  },
  "cells": [
    {
      "cell_type": "code",
      "source": [
        "import pandas as pd\n",
        "from pyspark.sql.functions import col, desc\n",
        "\n",
        "for table in ['products', 'customers', 'invoices', 'invoice_details']:\n",
        "    df = spark.read.format('csv').option('header', 'true').load(f'Files/sales-data/{table}.csv')\n",
        "    df.write.mode('overwrite').format('delta').saveAsTable(table)\n"
      ]
    }
  ]
}`

// copyDataPipelineTemplate copies source data files into a staging
// lakehouse from an external storage connection.
const copyDataPipelineTemplate = `{
  "properties": {
    "activities": [
      {
        "name": "Copy sales data files",
        "type": "Copy",
        "typeProperties": {
          "source": {
            "type": "BinarySource",
            "datasetSettings": {
              "externalReferences": { "connection": "{CONNECTION_ID}" }
            }
          },
          "sink": {
            "type": "BinarySink",
            "datasetSettings": {
              "linkedService": {
                "properties": {
                  "type": "Lakehouse",
                  "typeProperties": {
                    "workspaceId": "{WORKSPACE_ID}",
                    "artifactId": "{LAKEHOUSE_ID}",
                    "rootFolder": "Files"
                  }
                }
              }
            }
          }
        }
      }
    ]
  }
}`

// warehousePipelineTemplate runs a script activity against a warehouse.
// The script body is substituted per pipeline.
const warehousePipelineTemplate = `{
  "properties": {
    "activities": [
      {
        "name": "Run warehouse script",
        "type": "Script",
        "linkedService": {
          "properties": {
            "type": "DataWarehouse",
            "typeProperties": {
              "workspaceId": "{WORKSPACE_ID}",
              "artifactId": "{WAREHOUSE_ID}",
              "endpoint": "{WAREHOUSE_CONNECT_STRING}"
            }
          }
        },
        "typeProperties": {
          "scripts": [ { "type": "Query", "text": "{SCRIPT_TEXT}" } ]
        }
      }
    ]
  }
}`

// NotebookCreateRequest builds a notebook bound to a lakehouse, patching
// the workspace and lakehouse references into the notebook content.
func NotebookCreateRequest(workspaceID string, lakehouse platform.Item, displayName, content string) platform.CreateItemRequest {
	redirects := definition.Redirects{
		{Old: tokenWorkspaceID, New: workspaceID},
		{Old: tokenLakehouseID, New: lakehouse.ID},
		{Old: tokenLakehouseName, New: lakehouse.DisplayName},
	}
	return platform.CreateItemRequest{
		DisplayName: displayName,
		Kind:        platform.KindNotebook,
		Definition: &definition.Definition{
			Format: "ipynb",
			Parts: []definition.Part{
				definition.NewInlineBase64Part("notebook-content.ipynb", []byte(redirects.Apply(content))),
			},
		},
	}
}

// DirectLakeModelCreateRequest builds a DirectLake semantic model pointing
// at a SQL endpoint.
func DirectLakeModelCreateRequest(displayName, sqlEndpointServer, sqlEndpointDatabase string) platform.CreateItemRequest {
	redirects := definition.Redirects{
		{Old: tokenSQLEndpointServer, New: sqlEndpointServer},
		{Old: tokenSQLEndpointDatabase, New: sqlEndpointDatabase},
	}
	return platform.CreateItemRequest{
		DisplayName: displayName,
		Kind:        platform.KindSemanticModel,
		Definition: &definition.Definition{
			Parts: []definition.Part{
				definition.NewInlineBase64Part("definition.pbism", []byte(modelDescriptorTemplate)),
				definition.NewInlineBase64Part("model.bim", []byte(redirects.Apply(directLakeModelTemplate))),
			},
		},
	}
}

// ReportCreateRequest builds a report bound to a semantic model by ID.
func ReportCreateRequest(semanticModelID, displayName string) platform.CreateItemRequest {
	redirects := definition.Redirects{
		{Old: tokenSemanticModelID, New: semanticModelID},
	}
	return platform.CreateItemRequest{
		DisplayName: displayName,
		Kind:        platform.KindReport,
		Definition: &definition.Definition{
			Parts: []definition.Part{
				definition.NewInlineBase64Part("definition.pbir", []byte(redirects.Apply(reportDescriptorTemplate))),
				definition.NewInlineBase64Part("report.json", []byte(reportContentTemplate)),
				definition.NewInlineBase64Part("StaticResources/SharedResources/BaseThemes/CY24SU02.json", []byte(reportThemeTemplate)),
			},
		},
	}
}

// LakehousePipelineCreateRequest builds a data pipeline writing into a
// lakehouse from an external storage connection.
func LakehousePipelineCreateRequest(displayName, content, workspaceID, lakehouseID, connectionID string) platform.CreateItemRequest {
	redirects := definition.Redirects{
		{Old: tokenConnectionID, New: connectionID},
		{Old: tokenWorkspaceID, New: workspaceID},
		{Old: tokenLakehouseID, New: lakehouseID},
	}
	return pipelineCreateRequest(displayName, redirects.Apply(content))
}

// WarehousePipelineCreateRequest builds a data pipeline executing scripts
// against a warehouse SQL endpoint.
func WarehousePipelineCreateRequest(displayName, content, workspaceID, warehouseID, warehouseConnectString string) platform.CreateItemRequest {
	redirects := definition.Redirects{
		{Old: tokenWorkspaceID, New: workspaceID},
		{Old: tokenWarehouseID, New: warehouseID},
		{Old: tokenWarehouseConnect, New: warehouseConnectString},
	}
	return pipelineCreateRequest(displayName, redirects.Apply(content))
}

// WarehouseScriptContent fills the warehouse pipeline template with one
// SQL script body.
func WarehouseScriptContent(script string) string {
	return definition.Redirects{{Old: tokenScriptText, New: script}}.Apply(warehousePipelineTemplate)
}

func pipelineCreateRequest(displayName, content string) platform.CreateItemRequest {
	return platform.CreateItemRequest{
		DisplayName: displayName,
		Kind:        platform.KindDataPipeline,
		Definition: &definition.Definition{
			Parts: []definition.Part{
				definition.NewInlineBase64Part("pipeline-content.json", []byte(content)),
			},
		},
	}
}
