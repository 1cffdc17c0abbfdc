package vis

// The three verbs are the JSON encoded title, data and options.
var pageHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <style>
        * {
            margin: 0;
        }
        #graph {
            width: 100vw;
            height: 100vh;
        }
    </style>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script type="text/javascript"
      src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  </head>
  <body>
    <div id="graph"></div>
    <script type="text/javascript">
document.title = %s;

const data = %s;
const options = %s;

const network = new vis.Network(
  document.getElementById("graph"),
  { nodes: new vis.DataSet(data.nodes), edges: new vis.DataSet(data.edges) },
  options,
);
    </script>
  </body>
</html>`
